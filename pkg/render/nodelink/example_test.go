package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/render/nodelink"
)

func ExampleLabel() {
	head := graph.Node{ID: "db", Name: "Storage", ClusterID: "db", IsClusterNode: true}
	member := graph.Node{ID: "pg", Name: "postgres", ClusterID: "db"}

	for _, n := range []graph.Node{head, member} {
		l := nodelink.Label(n, 2)
		fmt.Printf("%s: size=%v align=%s offset=%v\n", l.Text, l.FontSize, l.Align, l.OffsetX)
	}
	// Output:
	// Storage: size=5 align=center offset=0
	// postgres: size=5 align=left offset=4
}
