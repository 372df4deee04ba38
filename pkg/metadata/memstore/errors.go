package memstore

import "errors"

var errDuplicateBucketName = errors.New("duplicate key value violates unique constraint \"buckets_name_key\"")
