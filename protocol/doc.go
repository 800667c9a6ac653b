// Package protocol implements the wire format of the Microchip 16-bit
// (PIC24/dsPIC33) UART bootloader: command frame encoding, response frame
// decoding and the status codes the device answers with.
//
// The package is pure: it performs no I/O and holds no state. All multi-byte
// integers are little-endian on the wire regardless of the host byte order.
//
// Device addresses are expressed in word units, where one word unit covers
// two bytes of target memory. The WordsToBytes and BytesToWords helpers make
// that conversion explicit at every boundary.
package protocol
