// Package harness runs playback scenarios as executable contract tests.
//
// A scenario plays one track group of an asset through a real engine with a
// fixed sequence of deltas, collects the observer events into a trace, and
// checks the trace and final engine state against assertions.
//
// # Scenario Format
//
//	name: loop_overshoot
//	description: "Clip inside the overshoot fires after the loop"
//	asset: ../assets/demo.yaml     # or an inline timeline:
//	timeline:
//	  groups:
//	    - id: 1
//	      name: intro
//	      max_duration: 2
//	      tracks:
//	        - name: fx
//	          clips:
//	            - { start: 0.5, duration: 1 }
//	group: { name: intro }
//	steps:
//	  - advance: 0.6
//	  - advance: 0.6
//	    expect: { clock: 1.2, active: 1 }
//	  - speed: 2
//	  - stop: true
//	assertions:
//	  - type: trace_contains
//	    event: start
//	    track: 0
//	    clip: 0
//	  - type: trace_order
//	    events: [play, start, end, loop]
//	  - type: trace_count
//	    event: loop
//	    count: 1
//	  - type: final_state
//	    playing: false
//
// # Determinism
//
// Deltas come from the scenario, the seq clock starts at zero and trace
// times are rendered with three decimals, so traces are identical across
// runs and can be compared against golden files with RunWithGolden.
package harness
