package nn

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/born-ml/convnet/internal/tensor"
)

// StateDict returns a copy of every parameter keyed "<layer>.<name>", for
// example "0.weight", "0.bias" or "2.kernels".
func (n *Network) StateDict() map[string][]float64 {
	state := make(map[string][]float64)
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			state[stateKey(i, p.Name)] = append([]float64(nil), p.Data...)
		}
	}
	return state
}

// LoadStateDict copies parameters from state into the network.
//
// Every parameter of the network must be present with the right length and
// state must not hold unknown keys. Nothing is written unless the whole dict
// matches.
func (n *Network) LoadStateDict(state map[string][]float64) error {
	known := make(map[string]*Parameter)
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			key := stateKey(i, p.Name)
			values, ok := state[key]
			if !ok {
				return fmt.Errorf("nn: missing %q: %w", key, ErrStateDict)
			}
			if len(values) != p.Len() {
				return fmt.Errorf("nn: %q has %d values, expected %d: %w", key, len(values), p.Len(), ErrStateDict)
			}
			known[key] = p
		}
	}
	for _, key := range sortedKeys(state) {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("nn: unexpected %q: %w", key, ErrStateDict)
		}
	}

	for key, p := range known {
		copy(p.Data, state[key])
	}
	return nil
}

func stateKey(layer int, name string) string {
	return fmt.Sprintf("%d.%s", layer, name)
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot is the serializable form of a network: its topology and its
// parameter values.
type Snapshot struct {
	Input      tensor.Shape         `json:"input"`
	Layers     []LayerConfig        `json:"layers"`
	BatchSlots int                  `json:"batch_slots"`
	State      map[string][]float64 `json:"-"`
}

// Snapshot captures the topology and a copy of the parameters.
func (n *Network) Snapshot() Snapshot {
	return Snapshot{
		Input:      n.input,
		Layers:     n.Configs(),
		BatchSlots: n.slots,
		State:      n.StateDict(),
	}
}

// FromSnapshot rebuilds a network from a snapshot.
func FromSnapshot(s Snapshot) (*Network, error) {
	slots := s.BatchSlots
	if slots <= 0 {
		slots = 1
	}
	//nolint:gosec // Every parameter is overwritten by the snapshot.
	net, err := NewNetwork(s.Input, s.Layers, WithBatchSlots(slots), WithRand(rand.New(rand.NewSource(0))))
	if err != nil {
		return nil, fmt.Errorf("nn: rebuild from snapshot: %w", err)
	}
	if err := net.LoadStateDict(s.State); err != nil {
		return nil, err
	}
	return net, nil
}
