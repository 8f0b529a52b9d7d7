// Package media issues presigned S3 URLs for account image uploads and
// downloads. Handlers hand clients a short-lived PUT URL plus the storage
// key; the object body never passes through this service.
package media
