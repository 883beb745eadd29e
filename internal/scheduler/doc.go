// Package scheduler ranks kitchen orders, estimates their preparation time
// and pickup window, and flags orders that are running late.
//
// A Scheduler works on one order snapshot. It performs no I/O and never
// mutates the orders it is given.
package scheduler
