package mine

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/jaeyo/go-drain3/pkg/drain3"
)

// TemplateSummary is an engine-agnostic view of one discovered template.
type TemplateSummary struct {
	ID       uuid.UUID
	Template string
	Count    int
}

// Miner is the minimal template-discovery surface shared by the native
// tree engine and the reference Drain implementation.
type Miner interface {
	Feed(lines []string) error
	Templates() ([]TemplateSummary, error)
}

var (
	_ Miner = (*Engine)(nil)
	_ Miner = (*DrainMiner)(nil)
)

// DrainMiner wraps the reference go-drain3 implementation behind the
// Miner interface. Useful for cross-checking the native engine's output
// on the same input.
type DrainMiner struct {
	mu    sync.Mutex
	drain *drain3.Drain
	// clusterUUIDs maps Drain cluster IDs to stable UUIDs so templates
	// keep their identity across Templates calls.
	clusterUUIDs map[int64]uuid.UUID
}

// NewDrainMiner creates a DrainMiner with parameters matching the native
// engine's defaults.
func NewDrainMiner() (*DrainMiner, error) {
	d, err := drain3.NewDrain(
		drain3.WithDepth(defaultDepth),
		drain3.WithSimTh(defaultSimThreshold),
		drain3.WithExtraDelimiter([]string{",", ":", ";", "=", "[", "]"}),
	)
	if err != nil {
		return nil, errors.Errorf("create drain: %w", err)
	}
	return &DrainMiner{
		drain:        d,
		clusterUUIDs: make(map[int64]uuid.UUID),
	}, nil
}

// Feed processes a batch of raw lines through the Drain algorithm.
func (m *DrainMiner) Feed(lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, line := range lines {
		cluster, _, err := m.drain.AddLogMessage(line)
		if err != nil {
			return errors.Errorf("drain add: %w", err)
		}
		if cluster == nil {
			continue
		}
		if _, ok := m.clusterUUIDs[cluster.ClusterId]; !ok {
			m.clusterUUIDs[cluster.ClusterId] = uuid.New()
		}
	}
	return nil
}

// Templates returns all Drain clusters discovered so far with their counts.
func (m *DrainMiner) Templates() ([]TemplateSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clusters := m.drain.GetClusters()
	out := make([]TemplateSummary, 0, len(clusters))
	for _, c := range clusters {
		id, ok := m.clusterUUIDs[c.ClusterId]
		if !ok {
			continue
		}
		out = append(out, TemplateSummary{
			ID:       id,
			Template: c.GetTemplate(),
			Count:    int(c.Size),
		})
	}
	return out, nil
}
