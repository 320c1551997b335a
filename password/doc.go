// Package password provides slow, salted password hashing and verification.
package password
