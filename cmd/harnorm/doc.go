// Command harnorm normalizes public human-activity-recognition datasets into
// one record layout and keeps a ledger of past runs.
//
//	harnorm read kuhar --root ~/datasets/KU-HAR --format csv
//	harnorm sources
//	harnorm runs list
package main
