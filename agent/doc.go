// Package agent runs the oracle-steered exploration loop: understand the
// page once, then plan one interaction per turn, act through the action
// engine, observe the result, and collect any defects the oracle reports.
// The loop is bounded by a turn budget and terminates early when the oracle
// signals done on two consecutive turns.
package agent
