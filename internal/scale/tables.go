package scale

// BuildLookup maps destination coordinates along one axis to source
// coordinates: src = dst*srcDim/dstDim, clamped into the source range.
// Tables depend only on the two dimensions, so the player builds them once
// per loaded asset.
func BuildLookup(srcDim, dstDim int) []uint16 {
	if srcDim <= 0 || dstDim <= 0 {
		return nil
	}
	table := make([]uint16, dstDim)
	for dst := 0; dst < dstDim; dst++ {
		src := dst * srcDim / dstDim
		if src >= srcDim {
			src = srcDim - 1
		}
		table[dst] = uint16(src)
	}
	return table
}
