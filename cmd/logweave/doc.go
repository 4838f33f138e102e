// Command logweave inspects and exercises logging configurations: resolve
// shows what a config compiles to and which backends would serve it, demo
// configures one and emits sample output through it.
package main
