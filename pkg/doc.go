// Package pkg provides the core libraries for Orbweave mind-map arrangement.
//
// # Overview
//
// Orbweave computes fresh 3D positions for mind-map entries with a
// force-directed layout. The pkg directory is organized into these areas:
//
//  1. [geom] - 3D vector primitives
//  2. [mindmap] - The mind-map model and its serialization
//  3. [layout] - The arrangement engine (axis placement, force simulation, scheduler)
//  4. [arranger] - Background execution with progress streaming
//  5. [pipeline] - Orchestration (load → arrange) with caching
//  6. [cache], [errors], [observability], [render] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through Orbweave:
//
//	Mind map JSON (entries + connections)
//	         ↓
//	    [mindmap] package (validate + index)
//	         ↓
//	    [layout] package (axis placement / force simulation per node)
//	         ↓
//	    New positions, streamed with progress via [arranger]
//
// # Quick Start
//
//	m, err := mindmap.ReadFile("map.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := layout.ArrangeMap(m, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(res.NewPositions), "entries repositioned")
package pkg
