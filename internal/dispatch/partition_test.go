package dispatch

import (
	"reflect"
	"testing"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		n, size   int
		wantSizes []int
	}{
		{0, 1000, nil},
		{1, 1000, []int{1}},
		{1000, 1000, []int{1000}},
		{1001, 1000, []int{1000, 1}},
		{2500, 1000, []int{1000, 1000, 500}},
		{7, 3, []int{3, 3, 1}},
		{5, 0, []int{5}},
	}
	for _, tt := range tests {
		batches := Partition(recipients(tt.n), tt.size)
		var sizes []int
		for _, b := range batches {
			sizes = append(sizes, len(b))
		}
		if !reflect.DeepEqual(sizes, tt.wantSizes) {
			t.Errorf("Partition(%d, %d) sizes = %v, want %v", tt.n, tt.size, sizes, tt.wantSizes)
		}
	}
}

func TestPartition_Properties(t *testing.T) {
	for n := 1; n <= 60; n++ {
		for _, size := range []int{1, 2, 7, 10, 59, 60, 61} {
			in := recipients(n)
			batches := Partition(in, size)

			wantBatches := (n + size - 1) / size
			if len(batches) != wantBatches {
				t.Fatalf("n=%d size=%d: %d batches, want %d", n, size, len(batches), wantBatches)
			}
			last := batches[len(batches)-1]
			if want := n - size*(wantBatches-1); len(last) != want || want < 1 || want > size {
				t.Fatalf("n=%d size=%d: last batch %d, want %d", n, size, len(last), want)
			}

			var joined []string
			for _, b := range batches {
				joined = append(joined, b...)
			}
			if !reflect.DeepEqual(joined, in) {
				t.Fatalf("n=%d size=%d: concatenated batches differ from input", n, size)
			}
		}
	}
}

func TestPartition_AppendDoesNotClobber(t *testing.T) {
	in := recipients(4)
	batches := Partition(in, 2)
	_ = append(batches[0], "intruder@example.com")
	if in[2] != "user0002@example.com" {
		t.Errorf("appending to a batch overwrote the next batch: %q", in[2])
	}
}
