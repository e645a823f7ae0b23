// Package driven holds the interfaces the core services call out through.
//
// The version store, vector index, embedder, corpus and config store are
// always wired. LLMService and PromptStore may be nil; answers then come
// from the local extractive answerer and the built-in prompts.
//
// Nothing here may import an adapter package.
package driven
