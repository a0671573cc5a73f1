// Package geo reads municipal boundaries, reprojects them to EPSG:4326 and
// joins them with the aggregated intervention dataset.
//
// Shapefiles are read with their .dbf, .prj and .cpg sidecars. GeoJSON
// collections are accepted as an alternative source. Coordinate conversion
// is done by github.com/go-spatial/proj; this package only maps EPSG codes
// and .prj definitions onto proj definitions. Records without polygon
// geometry are kept with a nil geometry and take part in the join.
package geo
