package utils

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

/*
PartitionMap splits the element index range [0,MaxIndex) into ParallelDegree contiguous
buckets. A bucket number doubles as the worker (thread) index during assembly, each worker
only ever writes rows and cache entries for the elements inside its own bucket.
*/
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// Splits the range into ParallelDegree pieces, with a maximum imbalance of one element
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

/*
RunPartitioned calls work once per bucket, each call on its own goroutine, and waits for
all of them. The first error returned by any bucket is returned, the remaining buckets still
run to completion since a pass is never cancelled midway.
*/
func (pm *PartitionMap) RunPartitioned(work func(bn, kMin, kMax int) error) error {
	var g errgroup.Group
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		if kMax == kMin {
			continue
		}
		bn := bn
		g.Go(func() error {
			if err := work(bn, kMin, kMax); err != nil {
				return fmt.Errorf("partition %d [%d,%d): %w", bn, kMin, kMax, err)
			}
			return nil
		})
	}
	return g.Wait()
}
