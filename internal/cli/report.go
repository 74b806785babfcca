package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/presentation/tui"
	"github.com/aretw0/flowstory/internal/stories"
	"github.com/aretw0/flowstory/pkg/adapters/mcp"
	"github.com/aretw0/flowstory/pkg/domain"
)

// Extraction is a flow together with the notices raised while extracting it.
type Extraction struct {
	Root    *domain.SceneNode
	Result  *domain.FlowExtractionResult
	Notices []string
}

// Extract resolves nodeID and extracts its flow.
func (a *App) Extract(ctx context.Context, nodeID string) (*Extraction, error) {
	root, err := a.Engine.Resolve(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	x := &Extraction{Root: root}
	res, err := a.Engine.Extract(ctx, root, flowstory.Notify(func(ctx context.Context, notice string) {
		mu.Lock()
		x.Notices = append(x.Notices, notice)
		mu.Unlock()
	}))
	if err != nil {
		return nil, err
	}
	x.Result = res
	return x, nil
}

// Summary returns the image-free view of the extraction.
func (x *Extraction) Summary() mcp.FlowSummary {
	return mcp.Summarize(x.Root.Name, x.Result, x.Notices)
}

// WriteFlow prints the extraction as a readable listing, or as JSON.
func WriteFlow(w io.Writer, x *Extraction, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(x.Summary())
	}

	res := x.Result
	fmt.Fprintf(w, "Flow: %s (%d frames, %d connections)\n", x.Root.Name, len(res.Frames), len(res.Connections))
	for _, n := range x.Notices {
		fmt.Fprintf(w, ">>> %s\n", n)
	}
	fmt.Fprintln(w, "\nFrames:")
	for i, f := range res.Frames {
		fmt.Fprintf(w, "  %d. %s (%s) %s\n", i+1, f.Name, f.ID, f.Link)
	}
	if len(res.Connections) > 0 {
		fmt.Fprintln(w, "\nConnections:")
		for _, e := range res.Connections {
			fmt.Fprintf(w, "  %s -> %s on %s\n", e.From, e.To, e.Action)
		}
	}
	return nil
}

// WriteStories renders a story document as Markdown, or as JSON.
func WriteStories(w io.Writer, render tui.Renderer, title string, doc *domain.StoryDocument, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	if render == nil {
		render = tui.Plain
	}
	out, err := render(stories.Markdown(title, doc))
	if err != nil {
		return fmt.Errorf("failed to render stories: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
