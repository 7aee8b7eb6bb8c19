// Package store keeps cleaned series between pipeline stages.
//
// Two drivers implement Store: a directory of cleaned_<domain>.csv files,
// which is also the published artifact format, and a single SQLite database.
// The cleaning stage is the only writer; analysis and forecasting only load.
package store
