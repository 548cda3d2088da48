package source

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// LatestWindow returns [max(0, head-span), head].
func LatestWindow(head, span uint64) BlockRange {
	if span >= head {
		return BlockRange{From: 0, To: head}
	}
	return BlockRange{From: head - span, To: head}
}

// Previous returns the window of the same span ending just before r. It
// reports false once r starts at genesis.
func (r BlockRange) Previous(span uint64) (BlockRange, bool) {
	if r.From == 0 {
		return BlockRange{}, false
	}
	return LatestWindow(r.From-1, span), true
}

// Len returns the number of blocks in r.
func (r BlockRange) Len() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}
