package service

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"exusiai.dev/stageflow/internal/model"
)

// Render writes concise models as Graphviz DOT.
type Render struct{}

func NewRender() *Render {
	return &Render{}
}

// RenderOptions tune the diagram.
type RenderOptions struct {
	// HideHiddenActivities omits the synthetic "_<stage>_<activity>" labels
	// from community tables.
	HideHiddenActivities bool
}

func quote(s string) string {
	return strconv.Quote(s)
}

// DOT renders a stage timeline with one table node per community, frequency
// labelled edges between communities, and dashed start and end edges.
func (s *Render) DOT(w io.Writer, m *model.ConciseModel, opts RenderOptions) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format, args...)
	}

	members := make(map[string][]string, len(m.CommunityActivities))
	for _, ca := range m.CommunityActivities {
		members[ca.Community] = ca.Activities
	}

	p("digraph G {\n")
	p("\trankdir=TB;\n\tcompound=true;\n")

	nodeIDs := make(map[string]string)
	stageIDs := make([]string, 0, len(m.StageCommunities))
	for _, sc := range m.StageCommunities {
		stageID := "stage_" + strconv.Itoa(sc.Stage)
		stageIDs = append(stageIDs, stageID)
		p("\t%s [label=%s shape=plaintext fontsize=14];\n", quote(stageID), quote("Stage "+strconv.Itoa(sc.Stage)))

		commIDs := make([]string, 0, len(sc.Communities))
		for _, comm := range sc.Communities {
			// Node ids derive from the label alone. Every stage lists its unranked
			// communities as model.UnrankedLabel, so they all collapse into the single
			// "comm_unranked" node that Graphviz draws once.
			commID := "comm_" + comm
			var rows strings.Builder
			for _, act := range members[comm] {
				if opts.HideHiddenActivities && strings.HasPrefix(act, "_") {
					continue
				}
				rows.WriteString("<TR><TD>" + html.EscapeString(act) + "</TD></TR>")
			}
			p("\t%s [shape=none label=<<TABLE BORDER=\"1\" CELLBORDER=\"0\" CELLSPACING=\"0\" STYLE=\"ROUNDED\" BGCOLOR=\"white\"><TR><TD><B>%s</B></TD></TR>%s</TABLE>>];\n",
				quote(commID), html.EscapeString(comm), rows.String())
			nodeIDs[comm] = commID
			commIDs = append(commIDs, quote(commID))
		}
		p("\t{ rank=same; %s; %s }\n", quote(stageID), strings.Join(commIDs, "; "))
	}

	for i := 1; i < len(stageIDs); i++ {
		p("\t%s -> %s [style=bold arrowhead=none];\n", quote(stageIDs[i-1]), quote(stageIDs[i]))
	}

	for _, e := range m.Edges {
		src, ok1 := nodeIDs[e.Source]
		dst, ok2 := nodeIDs[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		p("\t%s -> %s [label=%s];\n", quote(src), quote(dst), quote(strconv.Itoa(e.Frequency)))
	}

	p("\tstart [shape=circle label=\"Start\" style=filled fillcolor=lightgray];\n")
	p("\tend [shape=circle label=\"End\" style=filled fillcolor=lightgray];\n")
	for _, comm := range sortedKeys(m.Start) {
		if id, ok := nodeIDs[comm]; ok {
			p("\tstart -> %s [style=dashed arrowhead=none label=%s];\n", quote(id), quote(strconv.Itoa(m.Start[comm])))
		}
	}
	for _, comm := range sortedKeys(m.End) {
		if id, ok := nodeIDs[comm]; ok {
			p("\t%s -> end [style=dashed arrowhead=none label=%s];\n", quote(id), quote(strconv.Itoa(m.End[comm])))
		}
	}
	p("}\n")

	return errors.Wrap(bw.Flush(), "failed to write dot")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
