package simcollab

// Address is the concrete workerpool.Address implementation: a resolved
// network address identified by the numeric ID the Scheduler uses to look
// hosts up.
type Address struct {
	id uint32
}

// ID returns the address's numeric identifier.
func (a Address) ID() uint32 { return a.id }

// NewAddress wraps a raw host ID as an Address.
func NewAddress(id uint32) Address { return Address{id: id} }
