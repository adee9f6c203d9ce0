// Package core contains the StreamOne API client: configuration, request
// signing and execution, sessions, caches and the token resolver used to
// answer authorization questions for an actor. The default HTTP executor and
// password hasher come from the transport and password packages; cache and
// session store backends live in sibling packages and depend on this one.
package core
