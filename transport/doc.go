// Package transport carries keyboard reports from the firmware to the host.
//
// Every transport implements report.Transport: Write sends one 8-byte boot
// keyboard report, and Poll services host traffic without blocking.
//
// # Implementations
//
//   - [Gadget] writes to a Linux USB HID gadget character device
//     (/dev/hidgN). A write that cannot complete within its deadline is
//     reported as busy. The host LED output report is read on Poll.
//   - [Stream] writes reports to any io.ReadWriter, optionally prefixed by a
//     frame byte. [OpenSerial] opens a UART HID bridge as a Stream.
//   - [OpenFIFO] opens a directory of named pipes as a Stream: reports go to
//     "reports" and LED bytes are read from "leds".
//
// [SetupGadget] creates the configfs USB gadget that provides /dev/hidgN.
package transport
