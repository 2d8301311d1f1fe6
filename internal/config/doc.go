// Package config loads gestured.json.
//
// Values are resolved in three layers: built-in defaults from New, the JSON
// file, then GESTURED_* environment variables. Environment overrides are
// applied last so a container can retune thresholds without a new file.
//
//	{
//	  "server":  {"addr": ":8080", "maxSessions": 1000},
//	  "gesture": {"minSwipeDistance": 50, "maxSwipeTimeMs": 500, "minSwipeSpeed": 0.2},
//	  "record":  {"enabled": true, "dir": "traces"}
//	}
package config
