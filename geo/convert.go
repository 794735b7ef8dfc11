package geo

import "math"

// Krasovsky 1940 ellipsoid used by the GCJ-02 datum.
const (
	krasovskyA  = 6378245.0
	krasovskyEE = 0.00669342162296594323
	bdFactor    = math.Pi * 3000.0 / 180.0
)

// OutOfChina reports whether a WGS-84 point lies outside the area where the
// GCJ-02 offset applies.
func OutOfChina(lat, lng float64) bool {
	return lng < 72.004 || lng > 137.8347 || lat < 0.8293 || lat > 55.8271
}

// WGS84ToGCJ02 converts GPS coordinates to the GCJ-02 datum used by Amap.
// Points outside China are returned unchanged.
func WGS84ToGCJ02(lat, lng float64) (float64, float64) {
	if OutOfChina(lat, lng) {
		return lat, lng
	}
	dlat := transformLat(lng-105.0, lat-35.0)
	dlng := transformLng(lng-105.0, lat-35.0)

	radlat := lat / 180.0 * math.Pi
	magic := math.Sin(radlat)
	magic = 1 - krasovskyEE*magic*magic
	sqrtmagic := math.Sqrt(magic)

	dlat = (dlat * 180.0) / ((krasovskyA * (1 - krasovskyEE)) / (magic * sqrtmagic) * math.Pi)
	dlng = (dlng * 180.0) / (krasovskyA / sqrtmagic * math.Cos(radlat) * math.Pi)
	return lat + dlat, lng + dlng
}

// GCJ02ToBD09 converts GCJ-02 coordinates to Baidu's BD-09.
func GCJ02ToBD09(lat, lng float64) (float64, float64) {
	z := math.Sqrt(lng*lng+lat*lat) + 0.00002*math.Sin(lat*bdFactor)
	theta := math.Atan2(lat, lng) + 0.000003*math.Cos(lng*bdFactor)
	return z*math.Sin(theta) + 0.006, z*math.Cos(theta) + 0.0065
}

// WGS84ToBD09 converts GPS coordinates to Baidu's BD-09.
func WGS84ToBD09(lat, lng float64) (float64, float64) {
	return GCJ02ToBD09(WGS84ToGCJ02(lat, lng))
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
