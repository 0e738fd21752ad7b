// Package minio stores index snapshots in MinIO or any S3-compatible
// object store (Ceph, Garage, SeaweedFS) through the MinIO client.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "indexes/")
//	db, err := simring.LoadCurrent(ctx, store)
//
// Snapshots are created with If-None-Match so an existing snapshot is never
// overwritten. No AWS SDK is required.
package minio
