// Package report assembles USB HID boot keyboard reports and sends them to
// the host.
//
// # Report Format
//
// A boot keyboard report is 8 bytes:
//
//	[modifiers, reserved, key1, key2, key3, key4, key5, key6]
//
// The modifier byte carries one bit per modifier key (LCtrl through RGui).
// The six key slots hold the remaining pressed key codes in press order.
//
// # Overflow
//
// When more than six non-modifier keys are active the report cannot carry
// them all. [KeepFirst] keeps the six that were pressed first. [RollOver]
// fills every slot with ErrorRollOver, which tells the host that the key
// state is unknown. Either way the result depends only on the press order.
//
// # Sending
//
// An [Assembler] remembers the last report the host accepted and writes only
// when the report changes. Writes that the [Transport] reports as busy are
// retried a bounded number of times; if they are still refused the report
// is not marked sent and the next tick tries again.
//
// The host poll path ([Assembler.Poll]) never waits for the send path. If
// the transport is in use it records a deferred poll, which the send path
// performs as soon as its write completes.
package report
