// Command sunscope renders sun and shadow studies of a building site.
//
//	sunscope export --date 2024-06-21      write an animated GIF of the day
//	sunscope times --date 2024-06-21       print the day's sun times
//	sunscope view                          open the interactive viewer
//	sunscope config init                   write a sample configuration
package main
