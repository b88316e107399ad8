package device

// ActionFlags represents the memory operations to perform for a bound
// array around a kernel launch.
type ActionFlags int

const (
	// No action
	NoAction ActionFlags = 0
	// Copy from host to device before kernel execution
	CopyTo ActionFlags = 1 << iota
	// Copy from device to host after kernel execution
	CopyBack
	// Bidirectional copy (CopyTo | CopyBack)
	Copy = CopyTo | CopyBack
)

// Has checks if a specific action is set.
func (a ActionFlags) Has(action ActionFlags) bool {
	return a&action != 0
}

// NeedsCopyTo returns true if the binding requires a host-to-device
// copy before kernel execution.
func (a ActionFlags) NeedsCopyTo() bool { return a.Has(CopyTo) }

// NeedsCopyBack returns true if the binding requires a device-to-host
// copy after kernel execution.
func (a ActionFlags) NeedsCopyBack() bool { return a.Has(CopyBack) }
