// Package persona resolves the system instructions for a call.
//
// Persona content is deployment data, not code: a YAML file maps each call
// mode to an instruction template. At session start the bridge resolves the
// call's mode (a tagged variant: kind plus optional topic and task
// reference) to one template, renders it with the user's context, and
// appends the compact domain-state block and, when present, the briefing
// block prepared by the planning process.
//
// A built-in template set ships as a fallback so a missing persona file
// degrades to generic instructions rather than failing the call.
package persona
