// Package cluster 将商品向量划分为若干语义簇（k-means）。
//
// 簇数随数据量自适应：k = max(1, min(MaxClusters, n/ProductsPerSlot))。
// 使用固定随机种子与有序遍历，相同输入产生相同划分。
package cluster

import (
	"math/rand"
	"sort"

	"github.com/rushteam/searchkit/embedding"
)

// Config 是聚类参数；零值字段取默认。
type Config struct {
	// K 簇数；<= 0 时按 MaxClusters/ProductsPerSlot 自适应
	K int

	// MaxClusters / ProductsPerSlot 自适应簇数的上限与粒度
	MaxClusters     int
	ProductsPerSlot int

	// MaxIterations 迭代上限
	MaxIterations int

	// Seed 随机种子（固定以保证确定性）
	Seed int64
}

// Result 是一次聚类的产物。
//
// 不变量：每个输入商品恰好出现在一个簇的成员列表中（全划分）。
type Result struct {
	K           int
	Assignments map[string]int   // 商品 ID -> 簇 ID
	Members     map[int][]string // 簇 ID -> 成员商品 ID（升序）
	Iterations  int
}

// AutoK 按数据量计算簇数。
func AutoK(n, maxClusters, perSlot int) int {
	if n <= 0 {
		return 0
	}
	k := n / perSlot
	if k > maxClusters {
		k = maxClusters
	}
	if k < 1 {
		k = 1
	}
	return k
}

// Fit 对商品向量做 k-means 划分。输入为空时返回空 Result（非错误）。
func Fit(vectors map[string]map[string]float64, cfg Config) *Result {
	if cfg.MaxClusters <= 0 {
		cfg.MaxClusters = 20
	}
	if cfg.ProductsPerSlot <= 0 {
		cfg.ProductsPerSlot = 10
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50
	}

	res := &Result{
		Assignments: make(map[string]int),
		Members:     make(map[int][]string),
	}
	n := len(vectors)
	if n == 0 {
		return res
	}

	// 有序遍历是确定性的前提
	ids := make([]string, 0, n)
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	k := cfg.K
	if k <= 0 {
		k = AutoK(n, cfg.MaxClusters, cfg.ProductsPerSlot)
	}
	if k > n {
		k = n
	}
	res.K = k

	centroids := initCentroids(ids, vectors, k, cfg.Seed)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		res.Iterations = iter + 1

		// 指派：每个商品归入相似度最高的簇（同分取簇 ID 较小者）
		changed := false
		for _, id := range ids {
			best, bestSim := 0, -1.0
			for c, centroid := range centroids {
				if sim := embedding.Cosine(vectors[id], centroid); sim > bestSim {
					best, bestSim = c, sim
				}
			}
			if old, ok := res.Assignments[id]; !ok || old != best {
				res.Assignments[id] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// 重算质心：成员向量的逐维均值
		counts := make([]int, k)
		sums := make([]map[string]float64, k)
		for c := range sums {
			sums[c] = make(map[string]float64)
		}
		for _, id := range ids {
			c := res.Assignments[id]
			counts[c]++
			for term, w := range vectors[id] {
				sums[c][term] += w
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// 空簇：用离自身质心最远的点重新播种，保持全划分
				centroids[c] = vectors[farthest(ids, vectors, centroids)]
				continue
			}
			centroid := make(map[string]float64, len(sums[c]))
			for term, sum := range sums[c] {
				centroid[term] = sum / float64(counts[c])
			}
			centroids[c] = centroid
		}
	}

	for _, id := range ids {
		c := res.Assignments[id]
		res.Members[c] = append(res.Members[c], id)
	}
	return res
}

// initCentroids 选 k 个初始质心：首个随机（固定种子），
// 其余取离已选质心最远的点（kmeans++ 的确定性变体）。
func initCentroids(ids []string, vectors map[string]map[string]float64, k int, seed int64) []map[string]float64 {
	rng := rand.New(rand.NewSource(seed))
	centroids := make([]map[string]float64, 0, k)
	centroids = append(centroids, vectors[ids[rng.Intn(len(ids))]])

	for len(centroids) < k {
		centroids = append(centroids, vectors[farthest(ids, vectors, centroids)])
	}
	return centroids
}

// farthest 返回与所有质心的最大相似度最小的点（即最"远"的点）。
func farthest(ids []string, vectors map[string]map[string]float64, centroids []map[string]float64) string {
	bestID := ids[0]
	bestSim := 2.0
	for _, id := range ids {
		maxSim := -1.0
		for _, c := range centroids {
			if sim := embedding.Cosine(vectors[id], c); sim > maxSim {
				maxSim = sim
			}
		}
		if maxSim < bestSim {
			bestSim = maxSim
			bestID = id
		}
	}
	return bestID
}
