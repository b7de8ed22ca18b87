// Package fprbridge orchestrates the four floorplan/route/balance
// stages (§2): device lookup, floorplanning (package floorplan), global
// routing (package route), and latency balancing (package latency),
// driven by a structured configuration document (package config).
//
//	core/      — graph storage and traversal primitives
//	device/    — chip catalogue and bisection-tree slot manager
//	dataflow/  — the task-instance/stream-edge graph the compiler hands in
//	solver/    — a small deterministic branch-and-bound MILP solver
//	floorplan/ — recursive bisection floorplanning
//	route/     — capacity-aware global routing over the slot grid
//	latency/   — reconvergent-path depth balancing
//	config/    — input/output configuration documents
//	cmd/       — the `fprbridge run` command-line entrypoint
//
//	go get github.com/sfu-hiaccel/fprbridge
package fprbridge
