// Package config loads domquery settings from YAML.
//
// Every field has a working default, so an absent file or an empty document
// yields Default(). Durations use Go syntax ("60s", "1m30s").
//
//	cache:
//	  max_age: 60s
//	  max_entries: 100
//	  strict_keys: false
//	query:
//	  dedupe: true
//	tools:
//	  timeout: 30s
//	  bulkhead:
//	    max_concurrent: 4
//	server:
//	  addr: ":8080"
//	observe:
//	  service_name: domquery
//	  logging: {enabled: true, level: info}
package config
