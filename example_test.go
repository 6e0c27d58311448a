package cache_test

import (
	"fmt"
	"time"

	cache "github.com/larscom/go-timedcache"
)

func Example() {
	scheduler := cache.NewVirtualScheduler()
	sessions, _ := cache.New(time.Minute, cache.WithScheduler[string, string](scheduler))

	sessions.Set("alice", "token-1", func() {
		fmt.Println("alice expired")
	})

	scheduler.Advance(time.Second * 45)
	token, _ := sessions.Get("alice")
	fmt.Println(token)

	scheduler.Advance(time.Second * 45)
	fmt.Println(sessions.Has("alice"))

	scheduler.Advance(time.Second * 15)
	fmt.Println(sessions.Has("alice"))

	// Output:
	// token-1
	// true
	// alice expired
	// false
}
