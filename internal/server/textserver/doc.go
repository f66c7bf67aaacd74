// Package textserver serves the minikv line protocol over TCP.
//
// Each connection receives an optional greeting, then sends one command
// per line and gets one reply per line, terminated with CRLF. QUIT is
// handled here and closes the connection; everything else goes to the
// command dispatcher. Clients are rate limited per remote IP.
package textserver
