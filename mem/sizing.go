package mem

// Alignment is the byte boundary Blocksizes entries are aligned to.
const Alignment = int64(8)

// TargetUtilization bounds the mean utilization of each rung of the
// Blocksizes ladder: a rung is the first step above the previous rung
// for which (previous+rung)/2/rung is at or below this ratio. Small rungs
// therefore sit much further apart (32 -> 64 has a mean utilization of
// 0.75), and large rungs approach the ratio from below.
const TargetUtilization = float64(0.95)

// SuitableSize picks the smallest entry of blocksizes that is >= size, by
// binary search. Panics if size exceeds every entry.
func SuitableSize(blocksizes []int64, size int64) int64 {
	for {
		switch len(blocksizes) {
		case 1:
			if size <= blocksizes[0] {
				return blocksizes[0]
			}
			programerr("mem: size %d greater than configured range", size)

		case 2:
			if size <= blocksizes[0] {
				return blocksizes[0]
			} else if size <= blocksizes[1] {
				return blocksizes[1]
			}
			programerr("mem: size %d greater than configured range", size)

		default:
			pivot := len(blocksizes) / 2
			if blocksizes[pivot] < size {
				blocksizes = blocksizes[pivot+1:]
			} else {
				blocksizes = blocksizes[0 : pivot+1]
			}
		}
	}
}

// Blocksizes generates a ladder of block sizes between minblock and
// maxblock (inclusive). Each rung grows from the previous one in steps of
// a multiple of 32 bytes (at least 32) until its mean utilization,
// (previous+rung)/2/rung, is at or below TargetUtilization.
// Both bounds must be positive multiples of Alignment.
func Blocksizes(minblock, maxblock int64) []int64 {
	if maxblock < minblock {
		programerr("mem: minblock(%d) > maxblock(%d)", minblock, maxblock)
	} else if (minblock % Alignment) != 0 {
		programerr("mem: minblock %d is not a multiple of %d", minblock, Alignment)
	} else if (maxblock % Alignment) != 0 {
		programerr("mem: maxblock %d is not a multiple of %d", maxblock, Alignment)
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - TargetUtilization))
		if addby <= 32 {
			addby = 32
		} else if addby&0x1f != 0 {
			addby = (addby >> 5) << 5
		}
		size := from + addby
		for (float64(from+size) / 2.0 / float64(size)) > TargetUtilization {
			size += addby
		}
		return size
	}

	sizes := make([]int64, 0, 64)
	for size := minblock; size < maxblock; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	sizes = append(sizes, maxblock)
	return sizes
}
