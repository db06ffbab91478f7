// Package config loads the inboxtally configuration.
//
// Values come from built-in defaults, an optional YAML file and environment
// variables (OLLAMA_HOST, OLLAMA_MODEL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
// CACHE_TYPE, GOOGLE_CREDENTIALS_PATH), each layer overriding the previous.
// Command line flags are applied on top by the cmd package.
//
// Example file:
//
//	model:
//	  host: http://localhost:11434
//	  name: llama3:8b-instruct-q4_0
//	  timeout: 2m
//	redis:
//	  addr: localhost:6379
//	  key_prefix: ""
//	cache:
//	  type: redis
//	  ttl: 4h
//	gmail:
//	  max_results: 10
//	  account: default
package config
