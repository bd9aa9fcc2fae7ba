package spatial

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// labelPrecision tells apart cells of 1e-4 degrees, about 5m x 5m
const labelPrecision = 9

// Geohash encodes p as a base32 geohash of the given length. Bits
// alternate between longitude and latitude, longitude first, each one
// halving the remaining interval.
func Geohash(p GeoPoint, precision int) string {
	// ranges[0] is longitude, ranges[1] latitude
	ranges := [2][2]float64{{-180, 180}, {-90, 90}}
	values := [2]float64{p.Lng, p.Lat}

	out := make([]byte, precision)
	axis := 0
	for n := range out {
		var idx byte
		for b := 0; b < 5; b++ {
			r := &ranges[axis]
			mid := (r[0] + r[1]) / 2
			idx <<= 1
			if values[axis] >= mid {
				idx |= 1
				r[0] = mid
			} else {
				r[1] = mid
			}
			axis ^= 1
		}
		out[n] = geohashAlphabet[idx]
	}
	return string(out)
}

// Label returns a short human readable tag for a cell: the geohash of its
// center, fine enough to tell neighbouring cells apart
func (g Grid) Label(c CellID) string {
	return Geohash(g.Center(c), labelPrecision)
}
