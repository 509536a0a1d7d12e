package mission

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
)

// Plan is in-memory mission storage.
type Plan struct {
	items []core.MissionCommand
}

func NewPlan(items []core.MissionCommand) *Plan { return &Plan{items: items} }

func (p *Plan) Count() int { return len(p.items) }

func (p *Plan) At(index int) (core.MissionCommand, bool) {
	if index < 0 || index >= len(p.items) {
		return core.MissionCommand{}, false
	}
	return p.items[index], true
}

type planItem struct {
	Command string  `yaml:"command"`
	Param1  float32 `yaml:"param1"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	AltM    float64 `yaml:"alt_m"`
	CCW     bool    `yaml:"ccw"`
}

// LoadPlan reads a YAML plan file. Sequence numbers are assigned from
// the file order, starting at 1.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading plan %s", path)
	}
	var raw []planItem
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing plan %s", path)
	}

	items := make([]core.MissionCommand, 0, len(raw))
	for i, it := range raw {
		kind, ok := core.CommandKindFromName(it.Command)
		if !ok {
			return nil, errors.Errorf("plan %s item %d: unknown command %q", path, i+1, it.Command)
		}
		items = append(items, core.MissionCommand{
			Kind:   kind,
			Index:  i + 1,
			Param1: it.Param1,
			Location: core.Location{
				Lat:       it.Lat,
				Lng:       it.Lng,
				AltCm:     int32(it.AltM * 100),
				LoiterCCW: it.CCW,
			},
		})
	}
	return NewPlan(items), nil
}
