// Package secret resolves credentials referenced from stackcheck configuration.
//
// It supports:
//   - Strict environment expansion of configuration files (see Expand)
//   - Secret references of the form secretref:<provider>:<ref> (see Resolver)
//   - Built-in providers: "env" (another environment variable) and "file"
//     (the trimmed contents of a file, e.g. a mounted Docker/Kubernetes secret)
//
// Examples:
//
//	STACKCHECK_API_TOKEN=secretref:env:CI_API_TOKEN
//	STACKCHECK_JWT_SECRET=secretref:file:/run/secrets/jwt_secret
package secret
