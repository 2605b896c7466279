// Package barcode encodes booking references as Code-128 matrices and reads
// QR and Code-128 symbols back from raster images.
//
// Encoding and decoding are both backed by gozxing, a Go port of ZXing, so a
// matrix produced by Encode can be verified with the same library that reads
// tickets from scanned images. QR ticket images for fixtures and the
// "boardpass qr" command are produced with boombuler/barcode.
package barcode
