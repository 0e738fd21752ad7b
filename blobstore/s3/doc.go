// Package s3 stores index snapshots in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	store := simrings3.NewStore(client, "my-bucket", "indexes/")
//
//	db, err := simring.LoadCurrent(ctx, store)
//
// With several writers, wrap the store in a DDBCommitStore so advancing
// CURRENT is a DynamoDB conditional write instead of a plain overwrite.
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums
//   - Conditional creates (If-None-Match) so snapshots are never overwritten
//   - Automatic pagination for listing
package s3
