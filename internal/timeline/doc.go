// Package timeline defines the authoring data model played by the engine.
//
// An Asset holds track groups; a TrackGroup holds ordered tracks; a Track
// holds ordered clips; a Clip holds ordered notifications. Groups, tracks
// and clips are always handled by pointer: the engine tracks clip
// activations by identity, so two clips with identical timing are distinct.
//
// # File Format
//
// Assets are stored as YAML, JSON or CUE. Every format is checked against
// the embedded CUE schema (asset_schema.cue) before it is decoded:
//
//	version: 1000
//	groups:
//	  - id: 1000
//	    name: intro
//	    max_duration: 2.0
//	    looping: true
//	    speed: 1.0
//	    tracks:
//	      - name: fx
//	        clips:
//	          - start: 0.5
//	            duration: 1.0
//	            notifications:
//	              - kind: log
//	                message: "hello"
//
// Notifications are a tagged variant keyed by "kind". Unknown kinds decode
// to *UnknownNotification so an asset round-trips even when this build has
// no Go type for the kind.
//
// Absent fields take the authoring defaults: group id 1000, max_duration 10,
// looping true, speed 1, track active true.
package timeline
