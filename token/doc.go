// Package token generates session tokens and binds them to a username inside
// an encrypted, transportable credential.
//
// A credential is the AEAD-sealed form of "username:token". The separator is
// safe because generated tokens use a base64url alphabet that cannot contain
// ':'. Credentials are opaque to clients: without the server keyring they
// reveal neither the username nor the token, and any tampering is detected
// at decryption rather than decoding to garbage.
package token
