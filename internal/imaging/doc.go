// Package imaging renders detector intensity matrices as pictures.
//
// A matrix produced by the raster package is colorized through a Colormap,
// optionally gamma corrected, cropped, flipped and zoomed, and can carry an
// index grid overlay. Results are returned as *image.NRGBA and can be
// encoded as base64 PNG for transport or saved to disk.
//
// # Coordinate System
//
// Matrix cell (r, c) maps to image pixel (x=c, y=r):
//   - X: column index (0 = leftmost)
//   - Y: row index (0 = topmost, or bottommost with RenderOptions.FlipY)
//   - For regions, (X1,Y1) is inclusive (top-left), (X2,Y2) is exclusive
//     (bottom-right)
//
// Regions and grid spacings are given in matrix cells; zoom scales them to
// screen pixels. Grid labels always show matrix cell indexes.
//
// # Thread Safety
//
// All functions are stateless and can be called concurrently. Colormap
// values are read-only after construction.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside the matrix or with x1 >= x2 or y1 >= y2
//   - Unknown colormap names or unparsable hex colors
//   - Encoding errors during image output
package imaging
