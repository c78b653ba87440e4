// Command archivist runs the archive daemon and inspects its catalog.
//
// "archivist run" starts the daemon in the foreground. The remaining commands
// open the catalog directly; commands that would race a live daemon check the
// daemon lock first and refuse to run while it is held.
package main
