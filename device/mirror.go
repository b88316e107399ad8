// Package device gives the active block view optional OCCA residency:
// the arrays of the current activation can be bound to device memory,
// uploaded before a kernel launch, and downloaded after. The mirror is
// tied to one activation token; rebinding after the view moves to a new
// selection is the caller's responsibility, and a stale token fails
// loudly instead of copying into another block's memory.
package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/flowstruct/multiblock/block"
	"github.com/flowstruct/multiblock/view"
)

const elemSize = 8 // float64

// Binding is one array of the active selection resident on the device.
type Binding struct {
	Kind    view.ArrayKind
	Name    string
	Actions ActionFlags

	host  []float64
	bytes int64
	mem   *gocca.OCCAMemory
}

// Memory returns the device allocation backing this binding, for use as
// a kernel argument.
func (b *Binding) Memory() *gocca.OCCAMemory { return b.mem }

// Mirror holds the device-resident copies of one view's arrays for the
// duration of one activation.
type Mirror struct {
	Device *gocca.OCCADevice

	v        *view.View
	token    view.Token
	bindings map[view.ArrayKind]*Binding
	order    []view.ArrayKind
}

// NewMirror creates an empty mirror over an active view. The mirror
// stays valid until the view is deactivated or reactivated.
func NewMirror(dev *gocca.OCCADevice, v *view.View) (*Mirror, error) {
	if !v.Active() {
		return nil, fmt.Errorf("device mirror: %w", block.ErrStaleView)
	}
	return &Mirror{
		Device:   dev,
		v:        v,
		token:    v.Token(),
		bindings: make(map[view.ArrayKind]*Binding),
	}, nil
}

// Bind allocates device memory for one array kind of the active
// selection and records the copy actions to perform around kernel
// launches. The initial contents are copied up immediately.
func (m *Mirror) Bind(kind view.ArrayKind, actions ActionFlags) (*Binding, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if _, exists := m.bindings[kind]; exists {
		return nil, fmt.Errorf("array %v already bound", kind)
	}
	f, err := m.v.Field(kind)
	if err != nil {
		return nil, err
	}
	host := f.Values()
	if len(host) == 0 {
		return nil, fmt.Errorf("array %v is empty", kind)
	}

	b := &Binding{
		Kind:    kind,
		Name:    kind.String(),
		Actions: actions,
		host:    host,
		bytes:   int64(len(host) * elemSize),
	}
	b.mem = m.Device.Malloc(b.bytes, unsafe.Pointer(&host[0]), nil)
	m.bindings[kind] = b
	m.order = append(m.order, kind)
	return b, nil
}

// BindShadow binds the shadow mirror of a differentiable kind. Fails on
// non-differentiated stores: shadow residency is a capability decided
// when the store was built, not discovered here.
func (m *Mirror) BindShadow(kind view.ArrayKind, actions ActionFlags) (*Binding, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	f, ok, err := m.v.Mirror(kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("array %v has no shadow on this store", kind)
	}
	host := f.Values()
	b := &Binding{
		Kind:    kind,
		Name:    kind.String() + "d",
		Actions: actions,
		host:    host,
		bytes:   int64(len(host) * elemSize),
	}
	b.mem = m.Device.Malloc(b.bytes, unsafe.Pointer(&host[0]), nil)
	m.bindings[kind+numShadowOffset] = b
	m.order = append(m.order, kind+numShadowOffset)
	return b, nil
}

// Shadow binding keys live above the primal kind range.
const numShadowOffset view.ArrayKind = 1 << 10

// Get returns the binding for a kind, or nil.
func (m *Mirror) Get(kind view.ArrayKind) *Binding {
	return m.bindings[kind]
}

// Upload copies every binding flagged CopyTo from host to device.
func (m *Mirror) Upload() error {
	if err := m.check(); err != nil {
		return err
	}
	for _, kind := range m.order {
		b := m.bindings[kind]
		if !b.Actions.NeedsCopyTo() {
			continue
		}
		b.mem.CopyFrom(unsafe.Pointer(&b.host[0]), b.bytes)
	}
	return nil
}

// Download copies every binding flagged CopyBack from device to host.
func (m *Mirror) Download() error {
	if err := m.check(); err != nil {
		return err
	}
	for _, kind := range m.order {
		b := m.bindings[kind]
		if !b.Actions.NeedsCopyBack() {
			continue
		}
		b.mem.CopyTo(unsafe.Pointer(&b.host[0]), b.bytes)
	}
	return nil
}

// Free releases every device allocation. The mirror is unusable
// afterwards.
func (m *Mirror) Free() {
	for _, b := range m.bindings {
		if b.mem != nil {
			b.mem.Free()
			b.mem = nil
		}
	}
	m.bindings = map[view.ArrayKind]*Binding{}
	m.order = nil
}

// check verifies the view still holds the activation this mirror was
// built for.
func (m *Mirror) check() error {
	if !m.v.Active() || m.v.Token() != m.token {
		return fmt.Errorf("device mirror bound to an expired activation: %w", block.ErrStaleView)
	}
	return nil
}
