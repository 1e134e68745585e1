package env

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadGrid(t *testing.T) {
	Convey("A text grid map parses into typed cells with a stable hash", t, func() {
		grid, hash, err := LoadGrid(strings.NewReader("###\n# -\n###\n"))
		So(err, ShouldBeNil)
		So(len(grid), ShouldEqual, 3)
		So(grid[1][0], ShouldEqual, Wall)
		So(grid[1][1], ShouldEqual, Road)
		So(grid[1][2], ShouldEqual, Plain)

		grid2, hash2, err := LoadGrid(strings.NewReader("###\n# -\n###\n"))
		So(err, ShouldBeNil)
		So(hash2, ShouldEqual, hash)
		So(grid2, ShouldResemble, grid)
	})

	Convey("Ragged rows are rejected", t, func() {
		_, _, err := LoadGrid(strings.NewReader("###\n#\n###\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("Trailing whitespace is trimmed before the width check", t, func() {
		grid, _, err := LoadGrid(strings.NewReader("###\n###  \n###\t\n"))
		So(err, ShouldBeNil)
		So(len(grid[0]), ShouldEqual, 3)
		So(len(grid[1]), ShouldEqual, 3)
		So(len(grid[2]), ShouldEqual, 3)
	})

	Convey("An empty map is rejected", t, func() {
		_, _, err := LoadGrid(strings.NewReader(""))
		So(err, ShouldNotBeNil)
	})
}
