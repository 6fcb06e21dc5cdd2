package inject

import (
	"github.com/conneroisu/htmlinject/internal/assets"
	"github.com/conneroisu/htmlinject/internal/dom"
)

// Inspection lists the references a pass would rebase for one target.
type Inspection struct {
	Target   string             `json:"target" yaml:"target"`
	Template string             `json:"template" yaml:"template"`
	Assets   []assets.Reference `json:"assets" yaml:"assets"`
}

// Inspect loads every template and rebases a copy of it. Nothing is written
// and no pass state changes.
func (i *Injector) Inspect() ([]Inspection, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]Inspection, 0, len(i.targets))
	for _, t := range i.targets {
		doc, err := t.loader.Load()
		if err != nil {
			return out, withTarget(err, t.name)
		}
		refs, err := t.rebaser.Rebase(dom.Head(doc), dom.Body(doc), t.ignore)
		if err != nil {
			return out, withTarget(err, t.name)
		}
		out = append(out, Inspection{
			Target:   t.name,
			Template: t.loader.path,
			Assets:   refs,
		})
	}
	return out, nil
}
