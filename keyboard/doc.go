// Package keyboard runs the firmware pipeline.
//
// Every tick the matrix is scanned, the raw frame is debounced, settled
// events are fed to the layout, and the resulting key codes are assembled
// into a report that is sent to the host if it changed:
//
//	Scan -> Debounce -> Layout -> Assemble -> Send
//
// # Scheduling
//
// [Keyboard.Run] drives two loops. The tick loop runs the pipeline at
// [Config.TickPeriod]; a tick always runs to completion, and a tick that
// takes longer than its period is logged as an overrun. The poll loop
// services host traffic at [Config.PollPeriod]. The two share only the
// transport, guarded by the report assembler: the poll loop never waits for
// the tick loop, and a poll that finds the transport busy is performed by
// the tick loop right after its write.
//
// HoldTap timeouts are counted in ticks, so changing the tick period
// rescales them. Use [Config.Ticks] to convert durations.
package keyboard
