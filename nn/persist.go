package nn

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

const snapshotVersion = 1

type snapshot struct {
	Version    int      `msgpack:"version"`
	Layers     []int    `msgpack:"layers"`
	Activation string   `msgpack:"activation"`
	Output     string   `msgpack:"output"`
	Params     []matrix `msgpack:"params"`
}

type matrix struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	Data []float64 `msgpack:"data"`
}

// Save writes the architecture and every parameter to path. The file is
// replaced atomically.
func (n *Network) Save(path string) error {
	snap := snapshot{
		Version:    snapshotVersion,
		Layers:     n.cfg.sizes(),
		Activation: n.cfg.Activation,
		Output:     n.cfg.Output,
	}
	for _, p := range n.Weights() {
		r, c := p.Dims()
		snap.Params = append(snap.Params, matrix{Rows: r, Cols: c, Data: p.RawMatrix().Data})
	}

	b, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create weights dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write weights: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write weights: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace weights: %w", err)
	}
	return nil
}

// Load replaces every parameter with the ones stored at path. The stored
// architecture must match the network's.
func (n *Network) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read weights: %w", err)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("decode weights: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported weights version %d", snap.Version)
	}

	want := n.cfg.sizes()
	if !sameInts(snap.Layers, want) {
		return fmt.Errorf("%w: file has layers %v, network has %v", ErrShape, snap.Layers, want)
	}
	if snap.Activation != n.cfg.Activation || snap.Output != n.cfg.Output {
		return fmt.Errorf("%w: file uses %s/%s activations, network uses %s/%s",
			ErrShape, snap.Activation, snap.Output, n.cfg.Activation, n.cfg.Output)
	}

	w := make([]*mat.Dense, len(snap.Params))
	for i, p := range snap.Params {
		if p.Rows <= 0 || p.Cols <= 0 || len(p.Data) != p.Rows*p.Cols {
			return fmt.Errorf("%w: parameter %d is corrupt", ErrShape, i)
		}
		w[i] = mat.NewDense(p.Rows, p.Cols, p.Data)
	}
	if err := n.SetWeights(w); err != nil {
		return err
	}
	n.opt.reset(n.params())
	return nil
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
