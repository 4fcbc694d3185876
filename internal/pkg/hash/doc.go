// Package hash hashes and verifies short secrets.
//
// Nothing hashed here is ever reversible: backup codes go through Argon2id,
// SMS codes and login challenge tokens go through keyed HMAC-SHA256, and
// account passwords are checked against bcrypt hashes owned by the account
// collaborator.
package hash
