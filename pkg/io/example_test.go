package io_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

func ExampleToDefinition() {
	s := workflow.NewStore(catalog.MustBuiltin())
	start, _ := s.AddNode("start", workflow.Position{})
	end, _ := s.AddNode("end", workflow.Position{X: 200})
	_, _ = s.AddEdge(start, end, workflow.ConditionAlways, nil)

	_ = flowio.WriteJSON(os.Stdout, flowio.ToDefinition(s.Snapshot()))
	// Output:
	// {
	//   "version": 1,
	//   "nodes": [
	//     {
	//       "node_id": "start_1",
	//       "type_id": "start",
	//       "name": "Start",
	//       "config": {}
	//     },
	//     {
	//       "node_id": "end_1",
	//       "type_id": "end",
	//       "name": "End",
	//       "position": {
	//         "x": 200,
	//         "y": 0
	//       },
	//       "config": {}
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "source": "start_1",
	//       "target": "end_1",
	//       "condition_type": "always"
	//     }
	//   ]
	// }
}

func ExampleParseDefinition_issues() {
	payload := []byte(`{"version": 1, "nodes": [
		{"node_id": "a", "type_id": "human_approval", "config": {"timeout_hours": 0}},
		{"node_id": "b", "type_id": "teleport", "name": "Beam"}
	]}`)

	_, err := flowio.ParseDefinition(payload, catalog.MustBuiltin())
	var de *flowio.DeserializeError
	if errors.As(err, &de) {
		for _, issue := range de.Issues {
			fmt.Println(issue.Field, issue.Code)
		}
	}
	// Output:
	// nodes[0].config.timeout_hours FIELD_CONSTRAINT
	// nodes[1].type_id UNKNOWN_TYPE
}
