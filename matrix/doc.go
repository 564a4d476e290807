// Package matrix reads the electrical state of a row/column key matrix.
//
// A [Scanner] strobes each row line in turn and samples every column line,
// producing a [Frame]: a fixed-size bitmap with one bit per [Coordinate].
// Frames are plain values; comparing two frames with == compares every key.
//
// # Wiring
//
// Rows are outputs and columns are inputs. With the default active-low
// wiring the columns are pulled up and a closed switch pulls its column low
// while its row is driven low:
//
//	rows := []gpio.PinOut{gpioreg.ByName("GPIO19"), gpioreg.ByName("GPIO20")}
//	cols := []gpio.PinIn{gpioreg.ByName("GPIO5"), gpioreg.ByName("GPIO6")}
//	s, err := matrix.NewScanner(rows, cols, matrix.ScannerOptions{})
//	if err != nil {
//	    return err
//	}
//	frame := s.Scan()
//
// # Zero-Allocation Design
//
// [Scanner.Scan] does not allocate. A [Frame] holds up to [MaxRows] by
// [MaxCols] keys regardless of the matrix size in use.
package matrix
